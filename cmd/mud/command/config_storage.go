package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	DatabasePath string `json:"database_path"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.DatabasePath == "" {
		el.Add(fmt.Errorf("database_path is required"))
	}

	return el.Err()
}
