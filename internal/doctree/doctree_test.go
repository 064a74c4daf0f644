package doctree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

func shape(t *DocTree) string {
	var parts []string
	t.Walk(func(n *DocNode, depth int) {
		parts = append(parts, fmt.Sprintf("%s%s@%d", strings.Repeat(">", depth), n.Title, n.Page))
	})
	return strings.Join(parts, " ")
}

func TestBuild_Nesting(t *testing.T) {
	tree := Build("Book", []docmodel.OutlineEntry{
		{Level: 1, Title: "Part I", Page: 1},
		{Level: 2, Title: "Ch 1", Page: 2},
		{Level: 3, Title: "Sec 1.1", Page: 3},
		{Level: 2, Title: "Ch 2", Page: 5},
		{Level: 1, Title: "Part II", Page: 9},
	})
	want := "Part I@1 >Ch 1@2 >>Sec 1.1@3 >Ch 2@5 Part II@9"
	if got := shape(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if tree.Title != "Book" {
		t.Errorf("expected title Book, got %q", tree.Title)
	}
}

func TestBuild_LevelSkipAndLeadingDeepEntry(t *testing.T) {
	tree := Build("", []docmodel.OutlineEntry{
		{Level: 3, Title: "Preface", Page: 1},
		{Level: 1, Title: "One", Page: 2},
		{Level: 3, Title: "Deep", Page: 2},
		{Level: 3, Title: "Deeper sibling", Page: 3},
	})
	want := "Preface@1 One@2 >Deep@2 >Deeper sibling@3"
	if got := shape(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuild_Empty(t *testing.T) {
	tree := Build("x", nil)
	if tree.Children == nil || len(tree.Children) != 0 {
		t.Errorf("expected empty non-nil children, got %#v", tree.Children)
	}
}
