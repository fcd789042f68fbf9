// internal/game/utils.go
package game

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// EncodeEvent marshals a GameEvent for the wire.
// On failure it logs a warning and returns "{}" so a bad frame never breaks a writer.
func EncodeEvent(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.Warnf("failed to marshal GameEvent type %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}
