package dialog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/peerdialog/filter"
)

// suggestExtension returns the extension a local dialog's save result
// should gain, or "" when it already matches a filter.
func suggestExtension(filters []*filter.Filter, path string) string {
	if filter.MatchesAny(filters, path) {
		return ""
	}
	for _, f := range filters {
		if ext := f.DefaultExtension(); ext != "" {
			return ext
		}
	}
	return ""
}

// finalizeSave applies extension repair and the target checks to a save
// selection. Any refusal degrades to cancellation.
func (p *Picker) finalizeSave(sel *selection, filters []*filter.Filter) (string, bool) {
	path := sel.paths[0]
	overwriteChecked := sel.overwriteChecked

	if sel.suggestedExt != "" && !filter.MatchesAny(filters, path) {
		repaired, ok := filter.RepairExtension(path, sel.suggestedExt, p.chooseName(sel.suggestedExt))
		if !ok {
			p.config.Logger.Debug("extension repair declined", map[string]any{"path": path})
			return "", false
		}
		if repaired != path {
			// The toolkit's overwrite check covered the old name only.
			overwriteChecked = false
		}
		path = repaired
	}

	name := filepath.Base(path)
	info, err := os.Stat(path)
	exists := err == nil

	switch {
	case exists && info.IsDir():
		p.config.Prompter.Alert("Save File", fmt.Sprintf("%s is a directory. Choose a file name instead.", name))
		return "", false
	case exists && info.Mode().Perm()&0o222 == 0:
		p.config.Prompter.Alert("Save File", fmt.Sprintf("%s is write-protected.", name))
		return "", false
	case !exists && !dirWritable(filepath.Dir(path)):
		p.config.Prompter.Alert("Save File", fmt.Sprintf("Cannot create %s: the folder is missing or write-protected.", name))
		return "", false
	}

	if exists && !overwriteChecked {
		msg := fmt.Sprintf("%s already exists. Do you want to replace it?", name)
		if !p.config.Prompter.Confirm("Confirm Save", msg) {
			return "", false
		}
	}
	return path, true
}

// dirWritable reports whether dir exists and this process may create
// entries in it.
func dirWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	return canWrite(dir, info)
}

// chooseName asks the user between the replaced and the doubled extension.
func (p *Picker) chooseName(ext string) filter.Chooser {
	return func(candidates []string) (int, bool) {
		options := make([]string, len(candidates))
		for i, c := range candidates {
			options[i] = filepath.Base(c)
		}
		msg := fmt.Sprintf("The name does not end in .%s. Which name should be used?", ext)
		return p.config.Prompter.Choose("Save File", msg, options)
	}
}
