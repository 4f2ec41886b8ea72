// Package tlstest issues a throwaway CA and a localhost server certificate
// so tests can build a working security.TLSConfig.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/flowkit/security"
)

// Certs are PEM files under a test temp dir.
type Certs struct {
	CAFile   string
	CertFile string
	KeyFile  string
	// Pool trusts the CA, for clients dialing a server using Server().
	Pool *x509.CertPool

	dir string
}

// New issues a CA and a server certificate for localhost, 127.0.0.1 and ::1.
func New(t testing.TB) *Certs {
	t.Helper()
	c := &Certs{dir: t.TempDir(), Pool: x509.NewCertPool()}

	caKey := newKey(t)
	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "flowkit test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER := sign(t, ca, ca, caKey, caKey)
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: %v", err)
	}
	c.Pool.AddCert(caCert)
	c.CAFile = c.write(t, "ca.pem", "CERTIFICATE", caDER)

	leafKey := newKey(t)
	leaf := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    ca.NotBefore,
		NotAfter:     ca.NotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	c.CertFile = c.write(t, "server.pem", "CERTIFICATE", sign(t, leaf, caCert, leafKey, caKey))
	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	if err != nil {
		t.Fatalf("tlstest: %v", err)
	}
	c.KeyFile = c.write(t, "server-key.pem", "EC PRIVATE KEY", keyDER)
	return c
}

// Server returns settings serving the issued certificate.
func (c *Certs) Server() security.TLSConfig {
	return security.TLSConfig{CertFile: c.CertFile, KeyFile: c.KeyFile}
}

// Mutual is Server with client certificates verified against the CA.
func (c *Certs) Mutual() security.TLSConfig {
	cfg := c.Server()
	cfg.ClientCAFile = c.CAFile
	return cfg
}

// Client returns a client config that trusts the CA.
func (c *Certs) Client() *tls.Config {
	return &tls.Config{RootCAs: c.Pool, MinVersion: tls.VersionTLS12}
}

// Garbage writes a file that is not PEM and returns its path.
func (c *Certs) Garbage(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("tlstest: %v", err)
	}
	return path
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: %v", err)
	}
	return key
}

func sign(t testing.TB, tmpl, parent *x509.Certificate, key, parentKey *ecdsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("tlstest: signing %s: %v", tmpl.Subject.CommonName, err)
	}
	return der
}

func (c *Certs) write(t testing.TB, name, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(c.dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("tlstest: %v", err)
	}
	return path
}
