// Package config manages the easyip site file.
//
// The site file is YAML. It holds application preferences (discovery
// timeout, bind interface, monitor intervals, tracker database location,
// MQTT broker) and the operator's arrangement of devices into named groups
// with optional nicknames. Devices are referred to by MAC address.
//
// # File Location
//
//   - Linux: $XDG_CONFIG_HOME/easyip/site.yaml or $HOME/.config/easyip/site.yaml
//   - macOS: $HOME/.config/easyip/site.yaml
//   - Windows: %LOCALAPPDATA%\easyip\site.yaml
//
// # Usage Example
//
//	site, err := config.LoadDefault()
//	if err != nil {
//	    return err
//	}
//	site.AssignNew(macs, config.UngroupedName)
//	if err := site.MoveDevice("a0:29:19:3e:ab:91", "Warehouse"); err != nil {
//	    return err
//	}
//	if err := site.Save(); err != nil {
//	    return err
//	}
//
// Saves go through a temporary file and a rename, so a crash never leaves a
// half-written site file behind.
package config
