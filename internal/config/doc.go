// Package config handles the Palisade HCL configuration file.
//
// The file is optional; every key has a default. Attribute expressions may
// read environment variables through the env object:
//
//	backend         = "auto"              # auto, netsh or powershell
//	locale          = "zh-CN"             # message language
//	encoding        = "gb2312"            # console code page of the tools
//	command_timeout = "2m"
//	netsh_path      = "${env.SystemRoot}\\System32\\netsh.exe"
//
//	log {
//	  level = "debug"
//	  json  = false
//	}
//
//	phrases "netsh" {
//	  locale          = "de-DE"
//	  no_match        = ["Keine Regeln entsprechen den angegebenen Kriterien"]
//	  rule_name_label = "Regelname:"
//	}
//
//	report {
//	  dir    = "C:\\Reports"
//	  format = "yaml"
//	  rules  = 20
//	}
//
// PALISADE_BACKEND and PALISADE_LOCALE override the file, and PALISADE_CONFIG
// names an alternative file.
package config
