// Package integration contains end-to-end tests for NetWarden.
// These tests wire the full in-memory stack and verify the complete flow
// from event ingestion to alert history, incidents, and digests.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "NetWarden Integration Suite")
}
