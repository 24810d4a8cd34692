package catalog

import (
	"fmt"
	"strings"
)

// Catalogue is a named, ordered list of designations.
type Catalogue struct {
	Name    string
	Objects []string
}

// Index returns the position of name in the catalogue, or -1.
func (c Catalogue) Index(name string) int {
	name = NormalizeName(name)
	for i, o := range c.Objects {
		if o == name {
			return i
		}
	}
	return -1
}

// Messier is the full Messier list M1..M110.
var Messier = Catalogue{Name: "Messier", Objects: messierObjects()}

func messierObjects() []string {
	objs := make([]string, 0, 110)
	for i := 1; i <= 110; i++ {
		objs = append(objs, fmt.Sprintf("M%d", i))
	}
	return objs
}

// Caldwell holds the Caldwell objects observable from the northern hemisphere.
var Caldwell = Catalogue{Name: "Caldwell", Objects: []string{
	"NGC 188", "NGC 40", "NGC 4236", "NGC 7023", "IC 342", "NGC 6543", "NGC 2403", "NGC 559", "SH2-155", "NGC 663",
	"NGC 7635", "NGC 6946", "NGC 457", "NGC 869", "NGC 6826", "NGC 7243", "NGC 147", "NGC 185", "IC 5146", "NGC 7000",
	"NGC 4449", "NGC 7662", "NGC 1275", "NGC 2419", "NGC 4244", "NGC 6888", "NGC 752", "NGC 5005", "NGC 7331", "IC 405",
	"NGC 4631", "NGC 6992", "NGC 6960", "NGC 4889", "NGC 4559", "NGC 6885", "NGC 4565", "NGC 2392", "NGC 3626", "HYADES",
	"NGC 7006", "NGC 7814", "NGC 7479", "NGC 5248", "NGC 2261", "NGC 6934", "NGC 2775", "NGC 2238", "NGC 2244", "IC 1613",
	"NGC 4697", "NGC 3115", "NGC 2506", "NGC 7009", "NGC 246", "NGC 6822", "NGC 2360", "NGC 3242", "NGC 4038", "NGC 4039",
	"NGC 247", "NGC 7293", "NGC 2362", "NGC 253",
}}

// Catalogues lists the built-in catalogues.
var Catalogues = []Catalogue{Messier, Caldwell}

// Lookup finds a built-in catalogue by name, case-insensitively.
func Lookup(name string) (Catalogue, error) {
	for _, c := range Catalogues {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return Catalogue{}, fmt.Errorf("unknown catalogue %q (want Messier or Caldwell)", name)
}
