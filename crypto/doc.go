/*
Package crypto provides TLS configurations for the internal communication
between the replica nodes of a dotted cluster, plus an in-memory PKI
generator used by tests.
*/
package crypto
