package interfaces

import domaintypes "covertchan/internal/domain/types"

// KeyStore persists session key material for out-of-band delivery.
type KeyStore interface {
	SaveMaterial(passphrase string, material domaintypes.Material) error
	LoadMaterial(passphrase string) (domaintypes.Material, error)
}
