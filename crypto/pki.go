package crypto

import (
	"fmt"
	"net"
	"time"

	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
)

// Structs

// EphemeralPKI holds an in-memory root certificate plus one
// node key pair signed by it, ready to be turned into the
// internal TLS configs of a test cluster. Nothing touches
// the disk.
type EphemeralPKI struct {
	rootPool *x509.CertPool
	nodeCert tls.Certificate
}

// Functions

// NewEphemeralPKI generates a throwaway PKI valid for one
// hour, covering the loopback addresses, for use in tests
// that need mutually-authenticated TLS between nodes.
func NewEphemeralPKI() (*EphemeralPKI, error) {

	nBef := time.Now().Add(-time.Minute)
	nAft := time.Now().Add(time.Hour)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)

	// Generate the root key pair and self-signed root
	// certificate all node certificates chain up to.
	rootKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate root key: %v", err)
	}

	rootSerial, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, fmt.Errorf("could not generate random serial number: %v", err)
	}

	rootTempl := &x509.Certificate{
		SerialNumber:          rootSerial,
		Subject:               pkix.Name{Organization: []string{"dotted ephemeral PKI"}},
		NotBefore:             nBef,
		NotAfter:              nAft,
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              (x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature),
	}

	rootDER, err := x509.CreateCertificate(rand.Reader, rootTempl, rootTempl, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create root certificate: %v", err)
	}

	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root certificate: %v", err)
	}

	// Generate the node key pair and certificate signed by
	// the root, valid for loopback.
	nodeKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate node key: %v", err)
	}

	nodeSerial, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, fmt.Errorf("could not generate random serial number: %v", err)
	}

	nodeTempl := &x509.Certificate{
		SerialNumber:          nodeSerial,
		Subject:               pkix.Name{Organization: []string{"dotted ephemeral PKI"}},
		NotBefore:             nBef,
		NotAfter:              nAft,
		BasicConstraintsValid: true,
		KeyUsage:              (x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment),
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
		DNSNames:              []string{"localhost"},
	}

	nodeDER, err := x509.CreateCertificate(rand.Reader, nodeTempl, rootCert, &nodeKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create node certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(rootCert)

	return &EphemeralPKI{
		rootPool: pool,
		nodeCert: tls.Certificate{
			Certificate: [][]byte{nodeDER},
			PrivateKey:  nodeKey,
		},
	}, nil
}

// ServerConfig returns the TLS config a test node's
// receiver listens with.
func (pki *EphemeralPKI) ServerConfig() *tls.Config {

	return &tls.Config{
		RootCAs:      pki.rootPool,
		ClientCAs:    pki.rootPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		Certificates: []tls.Certificate{pki.nodeCert},
		MinVersion:   tls.VersionTLS12,
	}
}

// ClientConfig returns the TLS config a test node's sender
// dials peers with.
func (pki *EphemeralPKI) ClientConfig() *tls.Config {

	return &tls.Config{
		RootCAs:      pki.rootPool,
		Certificates: []tls.Certificate{pki.nodeCert},
		MinVersion:   tls.VersionTLS12,
	}
}
