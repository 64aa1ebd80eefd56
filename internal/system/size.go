package system

import "fmt"

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// NaturalSize formats a byte count with binary units and two decimals,
// e.g. "48.25 MiB".
func NaturalSize(bytes uint64) string {
	power := 0
	div := uint64(1)
	for n := bytes / 1024; n > 0 && power < len(sizeUnits)-1; n /= 1024 {
		div *= 1024
		power++
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), sizeUnits[power])
}
