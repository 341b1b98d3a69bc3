package earthdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jdx/go-netrc"
)

// LoginHost is the Earthdata Login server that data hosts redirect to.
const LoginHost = "urs.earthdata.nasa.gov"

// Credentials authenticate against Earthdata Login. A token takes precedence
// over a username and password.
type Credentials struct {
	Token    string
	Username string
	Password string
}

func (c Credentials) empty() bool {
	return c.Token == "" && (c.Username == "" || c.Password == "")
}

// LoadCredentials returns c if it is usable, otherwise the login for
// LoginHost in the netrc file at netrcPath (~/.netrc when empty).
func LoadCredentials(c Credentials, netrcPath string) (Credentials, error) {
	if !c.empty() {
		return c, nil
	}
	if netrcPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Credentials{}, err
		}
		netrcPath = filepath.Join(home, ".netrc")
	}
	n, err := netrc.Parse(netrcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("no Earthdata credentials: set a token or username/password, or add %s to %s", LoginHost, netrcPath)
		}
		return Credentials{}, fmt.Errorf("parse %s: %w", netrcPath, err)
	}
	m := n.Machine(LoginHost)
	if m == nil {
		return Credentials{}, fmt.Errorf("no machine %s in %s", LoginHost, netrcPath)
	}
	creds := Credentials{Username: m.Get("login"), Password: m.Get("password")}
	if creds.empty() {
		return Credentials{}, fmt.Errorf("incomplete login for %s in %s", LoginHost, netrcPath)
	}
	return creds, nil
}
