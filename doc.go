// Package protectedconfig protects configuration fragments at rest with
// password-derived symmetric encryption.
//
// A host configuration system creates a Provider, initializes it with a
// name and a seed/salt pair, and then calls Protect when a section is
// saved and Unprotect when it is loaded. Protected sections are stored
// by the host as an <EncryptedData> element holding a Base64 envelope.
//
//	p, err := protectedconfig.New(protectedconfig.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	if err := p.Initialize("SymmetricProvider", map[string]string{
//		"seed": seed,
//		"salt": "0x0A0B0C0D0E0F1011",
//	}); err != nil {
//		return err
//	}
//	node, err := p.Protect(`<connectionStrings>...</connectionStrings>`)
//
// The salt may be written as hex (optionally prefixed with "$", "0x" or
// "&h"), as Base64, or as plain text. A blank seed can be supplied through
// the PROTECTEDCONFIG_SEED environment variable or the OS keyring.
//
// This is not a production-grade scheme. The key and IV are both derived
// from the seed and salt, so equal fragments encrypt to equal envelopes,
// and envelopes carry no authentication tag. Anyone who can read the seed
// can read the configuration.
package protectedconfig
