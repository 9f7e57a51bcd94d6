package protocol

import "strings"

// Classify infers the device class from a decoded response.
//
// A device is a recorder when it reports a channel count (tag 0xc0) or its
// model belongs to a recorder series. Tag 0xa6 is not consulted: cameras
// and recorders have been seen sending the same value.
func Classify(tlv TLVMap, modelName string) DeviceType {
	if tlv.Has(TagChannels) {
		return DeviceRecorder
	}
	if IsRecorderModel(modelName) {
		return DeviceRecorder
	}
	return DeviceCamera
}

// IsRecorderModel reports whether modelName starts with a recorder series
// prefix.
func IsRecorderModel(modelName string) bool {
	for _, prefix := range RecorderModelPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			return true
		}
	}
	return false
}
