//go:build tools

package amplification

import (
	_ "github.com/golang/mock/mockgen"
)
