// Package config loads the settings and user key mappings of keystroke.
//
// Configuration lives in one directory, by default
// $XDG_CONFIG_HOME/keystroke or ~/.config/keystroke:
//
//	config.toml    settings (timeouts, logging, file locations)
//	keystrokerc    rc file with map commands
//	keymaps/       YAML or TOML mapping files
//	plugins/       Lua plugins, one directory each
//
// # Settings
//
// LoadSettings decodes config.toml over DefaultSettings. Unknown keys are
// errors and are reported as *ParseError with line and column. Relative
// paths are relative to the configuration directory.
//
// # rc files
//
// A Sourcer runs rc file commands:
//
//	" comment
//	nnoremap <space>j 5j
//	map <silent> zz gg
//	\ continued from the previous line
//	cunmap <c-w>
//	source ~/.config/keystroke/extra.rc
//
// Every command is attempted. Failing commands are reported as
// *SourceError naming the file and line, joined into one error.
//
// # Reloading
//
// LoadMappings applies the rc file and then the keymap files. The watcher
// subpackage reports changes of these files so the caller can clear the
// user mappings and load them again.
package config
