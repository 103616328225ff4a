package prs_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPrs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Prs Suite")
}
