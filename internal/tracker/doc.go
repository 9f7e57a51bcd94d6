// Package tracker keeps a persistent history of discovered devices.
//
// Each scan is folded into a bbolt database keyed by MAC address. The store
// remembers when a device was first and last seen and every address it has
// held, so an operator can spot devices that moved or disappeared:
//
//	store, err := tracker.Open("easyip.db", logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	result, err := store.Update(records, time.Now())
//	for _, u := range result.IPChanged {
//	    fmt.Println(u.Device.MACAddress, u.Changes.OldIP, "->", u.Changes.NewIP)
//	}
//
// A device seen in the latest scan is Active, or IP Changed when its most
// recent history entry records a move. An unseen device is Offline until it
// has been absent for longer than the missing window, then MISSING.
package tracker
