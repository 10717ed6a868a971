package utils

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/goccy/go-json"
	"github.com/oklog/ulid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

// Ternary returns a when cond holds, b otherwise
func Ternary(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}

// ArrayContains returns the index of the first element matching, or -1
func ArrayContains[T any](set []T, match func(elem T) bool) (int, bool) {
	for idx, elem := range set {
		if match(elem) {
			return idx, true
		}
	}

	return -1, false
}

// ForEach stops at the first failing element
func ForEach[T any](set []T, action func(elem T) error) error {
	for _, elem := range set {
		if err := action(elem); err != nil {
			return err
		}
	}

	return nil
}

func IsValidSubcommand(available []*cobra.Command, cmd string) bool {
	_, found := ArrayContains(available, func(elem *cobra.Command) bool {
		return elem.Name() == cmd
	})
	return found
}

// ULID returns a lexically sortable unique id
func ULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// UnmarshalFile reads a JSON or YAML file into dest. Credential files are
// decrypted first when an encryption key is configured.
func UnmarshalFile(file string, dest any, credsFile bool) error {
	if file == "" {
		return fmt.Errorf("file path is empty")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file[%s]: %s", file, err)
	}

	if credsFile && strings.TrimSpace(viper.GetString(constants.EncryptionKey)) != "" {
		data, err = DecryptConfig(context.Background(), string(bytes.TrimSpace(data)))
		if err != nil {
			return fmt.Errorf("failed to decrypt file[%s]: %s", file, err)
		}
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("failed to convert yaml file[%s]: %s", file, err)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("failed to unmarshal file[%s]: %s", file, err)
	}

	return nil
}
