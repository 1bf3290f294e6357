package discover

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callsite/internal/lang"
)

// modelDirs are searched without descending into subdirectories.
var modelDirs = map[string]struct{}{
	"app":        {},
	"app/Models": {},
}

// modelBases are the parent classes that make a class an Eloquent model.
var modelBases = map[string]struct{}{
	"Model":           {},
	"Authenticatable": {},
	"Pivot":           {},
	"MorphPivot":      {},
}

// Models returns the fully qualified names of classes in app/ and
// app/Models/ that directly extend an Eloquent base class.
func Models(ctx context.Context, root string) ([]string, error) {
	files, err := Files(root, "app")
	if err != nil {
		return nil, err
	}

	h := lang.NewHandle(lang.Languages["php"])
	var models []string
	for _, f := range files {
		if _, ok := modelDirs[path.Dir(f.Path)]; !ok || f.Language != "php" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		tree, err := h.Parse(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		models = append(models, modelClasses(tree.RootNode(), src)...)
		tree.Close()
	}
	sort.Strings(models)
	return models, nil
}

func modelClasses(root *sitter.Node, src []byte) []string {
	var namespace string
	var out []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "namespace_definition":
			if n := child.ChildByFieldName("name"); n != nil {
				namespace = lang.NodeText(n, src)
			}
		case "class_declaration":
			name := child.ChildByFieldName("name")
			if name == nil || !extendsModel(child, src) {
				continue
			}
			class := lang.NodeText(name, src)
			if namespace != "" {
				class = namespace + `\` + class
			}
			out = append(out, class)
		}
	}
	return out
}

func extendsModel(class *sitter.Node, src []byte) bool {
	for i := 0; i < int(class.NamedChildCount()); i++ {
		base := class.NamedChild(i)
		if base.Type() != "base_clause" {
			continue
		}
		for j := 0; j < int(base.NamedChildCount()); j++ {
			name := lang.NodeText(base.NamedChild(j), src)
			if k := strings.LastIndex(name, `\`); k >= 0 {
				name = name[k+1:]
			}
			if _, ok := modelBases[name]; ok {
				return true
			}
		}
	}
	return false
}
