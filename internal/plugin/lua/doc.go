// Package lua runs editor plugins written as Lua scripts.
//
// A plugin script defines two global functions. _create_plugin returns a
// table describing the plugin; _destroy_plugin receives that table when the
// plugin is destroyed:
//
//	local notos = require("notos")
//
//	local Upper = {}
//	Upper.__index = Upper
//
//	function _create_plugin()
//	    return setmetatable({ id = "uppercase", name = "Uppercase" }, Upper)
//	end
//
//	function _destroy_plugin(plugin) end
//
//	function Upper:menu_ui(menu, ed)
//	    local action
//	    menu:menu("Edit", function(m)
//	        if m:button("Uppercase") then
//	            action = notos.replace_all(string.upper(ed.content))
//	            m:close_menu()
//	        end
//	    end)
//	    return action
//	end
//
// The optional hooks are on_load(ui), ui(ui, ed), menu_ui(menu, ed) and
// on_unload(). ui and menu_ui return nil or an action built with the notos
// module. ed carries content, and selection plus selected_text when text is
// selected; selection offsets are zero-based byte offsets.
//
// # Sandbox
//
// Each script runs in its own state with the base, package, string, table
// and math libraries. dofile, loadfile, load and loadstring are removed,
// require resolves only the built-in libraries and "notos", and print writes
// to the plugin log. Every call is bounded by an execution timeout.
//
// Errors raised by a hook are logged and the hook yields no action.
package lua
