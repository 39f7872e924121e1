// Package security holds the TLS settings shared by the outbound transports:
// the profile API client and the Redis draft store.
//
//	api:
//	  tls:
//	    ca_file: /etc/profilewizard/ca.pem
//	    min_version: "1.3"
package security
