package termination_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTermination(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Termination Suite")
}
