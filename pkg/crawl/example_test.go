package crawl_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/reposgraph/pkg/crawl"
	"github.com/matzehuels/reposgraph/pkg/fetch"
	"github.com/matzehuels/reposgraph/pkg/render"
)

func ExampleCrawler_Crawl() {
	f := fetch.NewStatic(map[string]string{
		"https://raw.githubusercontent.com/org/repo/main/root.repos": `
repositories:
  dep1:
    type: git
    url: https://github.com/org/dep1.git
    version: v1.0
`,
		// dep1's build_depends.repos is absent.
	})

	res, err := crawl.New(f, crawl.Options{}).Crawl(context.Background(), crawl.Root{
		DisplayURL: "https://github.com/org/repo",
		RawURL:     "https://raw.githubusercontent.com/org/repo/main/root.repos",
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Print(render.Mermaid(res.Graph, render.DefaultOptions()))
	fmt.Println(f.Requests()[1])
	// Output:
	// graph LR;
	//     org/repo-->org/dep1;
	// https://raw.githubusercontent.com/org/dep1/v1.0/build_depends.repos
}
