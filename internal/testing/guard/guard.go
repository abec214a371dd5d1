package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MULTISTOCK_TEST_MODE") == "" {
			_ = os.Setenv("MULTISTOCK_TEST_MODE", "1")
		}
	})
}
