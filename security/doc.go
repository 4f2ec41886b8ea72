// Package security builds the TLS settings of the HTTP API.
//
//	cfg := security.TLSConfig{
//	    CertFile:     "/path/to/cert.pem",
//	    KeyFile:      "/path/to/key.pem",
//	    ClientCAFile: "/path/to/ca.pem", // optional, enables mTLS
//	}
//
//	tlsConfig, err := cfg.Build()
package security
