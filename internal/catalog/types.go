package catalog

// TypeDescription maps SIMBAD object type codes to readable names.
// See http://vizier.u-strasbg.fr/cgi-bin/OType for the full list.
var TypeDescription = map[string]string{
	"AGN":  "Active galaxy nucleus",
	"SNR":  "SuperNova remnant",
	"SFR":  "Star forming region",
	"GNe":  "Nebula",
	"RNe":  "Reflection nebula",
	"GDNe": "Dark cloud (nebula)",
	"MoC":  "Molecular cloud",
	"IG":   "Interacting galaxies",
	"PaG":  "Pair of galaxies",
	"GiP":  "Galaxy in pair of galaxies",
	"CGG":  "Compact group of galaxies",
	"ClG":  "Cluster of galaxies",
	"BH":   "Black hole",
	"LSB":  "Low surface brightness galaxy",
	"SBG":  "Starburst galaxy",
	"H2G":  "HII galaxy",
	"GGG":  "Galaxy",
	"G":    "Galaxy",
	"Cl":   "Cluster of stars",
	"GlC":  "Globular cluster",
	"OpC":  "Open cluster",
	"Cl*":  "Open cluster",
	"LIN":  "LINER-type active galaxy nucleus",
	"SyG":  "Seyfert galaxy",
	"Sy1":  "Seyfert 1 galaxy",
	"Sy2":  "Seyfert 2 galaxy",
	"GiG":  "Galaxy towards a group of galaxies",
	"As*":  "Association of stars",
	"PN":   "Planetary nebula",
	"HII":  "HII region",
}

// Describe returns the readable name for a type code, or "" if unknown.
func Describe(code string) string {
	return TypeDescription[code]
}
