package crypto

import (
	"strings"

	"github.com/google/uuid"

	"covertchan/internal/domain"
)

// GenerateName returns a random channel name. It never equals the debug
// channel name.
func GenerateName() domain.ChannelName {
	return domain.ChannelName(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
