// Package locale installs the message catalog used for player notices.
package locale

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leonelquinteros/gotext"
)

// DefaultLanguage is the catalog compiled into the binary
const DefaultLanguage = "en_GB"

const domain = "default"

//go:embed en_GB/default.po
var defaultPO []byte

// Init loads the catalog for lang. Catalogs under dir (dir/lang/default.po)
// take precedence; the embedded en_GB catalog is used otherwise.
func Init(dir, lang string) error {
	if lang == "" {
		lang = DefaultLanguage
	}
	if dir != "" {
		path := filepath.Join(dir, lang, domain+".po")
		if _, err := os.Stat(path); err == nil {
			gotext.Configure(dir, lang, domain)
			return nil
		}
	}
	if lang != DefaultLanguage {
		return fmt.Errorf("no %s catalog for language %q", domain, lang)
	}

	po := gotext.NewPo()
	po.Parse(defaultPO)

	l := gotext.NewLocale("", lang)
	l.AddTranslator(domain, po)
	gotext.SetStorage(l)
	return nil
}

// T returns the translation for key with args substituted into it
func T(key string, args ...any) string {
	msg := gotext.Get(key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
