package rustdoc

import (
	"encoding/json"
	"slices"
	"strings"
)

// Reexport maps a path re-exported by a crate to the path that defines the
// item, possibly in another crate.
type Reexport struct {
	LocalPrefix  string // path as seen from the re-exporting crate
	SourceCrate  string // crate that defines the item
	SourcePrefix string // path in the source crate
}

// Reexports walks the crate's module tree and returns every `pub use`
// mapping. Uses that name an item under its own path are skipped.
func (c *Crate) Reexports(crateName string) []Reexport {
	var out []Reexport
	c.walkReexports(c.Root, []string{crateName}, crateName, map[int]bool{}, &out)
	return out
}

func (c *Crate) walkReexports(moduleID int, path []string, crateName string, seen map[int]bool, out *[]Reexport) {
	if seen[moduleID] {
		return
	}
	seen[moduleID] = true

	moduleItem, ok := c.item(moduleID)
	if !ok {
		return
	}
	modulePath := strings.Join(path, "::")
	if summary, ok := c.Paths[itoa(moduleID)]; ok && len(summary.Path) > 0 {
		modulePath = strings.Join(summary.Path, "::")
	}

	var mod struct {
		Items []int `json:"items"`
	}
	if data := unwrapInner(moduleItem.Inner, "module"); data == nil || json.Unmarshal(data, &mod) != nil {
		return
	}

	for _, childID := range mod.Items {
		child, ok := c.item(childID)
		if !ok {
			continue
		}

		switch innerKind(child.Inner) {
		case "module":
			c.walkReexports(childID, append(slices.Clip(path), nameOf(child)), crateName, seen, out)
			continue
		case "use":
		default:
			continue
		}

		use, ok := parseUse(child)
		if !ok || use.ID == nil {
			continue
		}
		target, ok := c.Paths[itoa(*use.ID)]
		if !ok {
			continue
		}

		sourcePath := strings.Join(target.Path, "::")
		sourceCrate := crateName
		if target.CrateID != 0 {
			if sourceCrate = c.ExternalCrateName(target.CrateID); sourceCrate == "" {
				continue
			}
		}

		localPath := modulePath
		if !use.IsGlob {
			localPath += "::" + use.Name
		}
		if localPath == sourcePath && sourceCrate == crateName {
			continue
		}
		*out = append(*out, Reexport{
			LocalPrefix:  localPath,
			SourceCrate:  sourceCrate,
			SourcePrefix: sourcePath,
		})
	}
}

type useInner struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	ID     *int   `json:"id"`
	IsGlob bool   `json:"is_glob"`
}

func parseUse(it Item) (useInner, bool) {
	var use useInner
	data := unwrapInner(it.Inner, "use")
	if data == nil || json.Unmarshal(data, &use) != nil {
		return use, false
	}
	return use, true
}
