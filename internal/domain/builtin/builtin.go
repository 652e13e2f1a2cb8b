// Package builtin embeds the rule definitions shipped with ratchet.
package builtin

import (
	"embed"
	"io/fs"
)

//go:embed */*/*.toml
var ruleFS embed.FS

// Files returns the embedded rule documents keyed by their relative path,
// <group>/<kind>/<id>.toml. The same layout is expected of the on-disk
// override tree.
func Files() map[string][]byte {
	files := map[string][]byte{}
	fs.WalkDir(ruleFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := ruleFS.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = data
		return nil
	})
	return files
}
