package hyundaican

import (
	"slices"

	"github.com/roffe/hkgcan/pkg/checksum"
)

// Platform names a supported vehicle. It is supplied by the caller, this
// package does not identify cars.
type Platform string

const (
	HyundaiElantra2021   Platform = "HYUNDAI ELANTRA 2021"
	HyundaiGenesis       Platform = "HYUNDAI GENESIS 2015-2016"
	HyundaiKona          Platform = "HYUNDAI KONA 2020"
	HyundaiPalisade      Platform = "HYUNDAI PALISADE 2020"
	HyundaiSantaFe       Platform = "HYUNDAI SANTA FE 2019"
	HyundaiSonata        Platform = "HYUNDAI SONATA 2020"
	HyundaiSonataHybrid  Platform = "HYUNDAI SONATA HYBRID 2021"
	KiaOptima            Platform = "KIA OPTIMA SX 2019 & 2016"
	KiaSeltos            Platform = "KIA SELTOS 2021"
	KiaSorento           Platform = "KIA SORENTO GT LINE 2018"
	KiaStinger           Platform = "KIA STINGER GT2 2018"
	GenesisG80           Platform = "GENESIS G80 2017"
	GenesisG90           Platform = "GENESIS G90 2017"
	HyundaiIoniqElectric Platform = "HYUNDAI IONIQ ELECTRIC LIMITED 2019"
)

var checksumPlatforms = map[checksum.Variant][]Platform{
	checksum.CRC8: {HyundaiSantaFe, HyundaiSonata, HyundaiPalisade, KiaSeltos, HyundaiElantra2021, HyundaiSonataHybrid},
	checksum.Sum6: {KiaSorento, HyundaiGenesis},
}

// ChecksumFor returns the LKAS11 checksum variant used by p. Platforms not
// listed use the 6 byte plus tail sum.
func ChecksumFor(p Platform) checksum.Variant {
	for _, v := range []checksum.Variant{checksum.CRC8, checksum.Sum6} {
		if slices.Contains(checksumPlatforms[v], p) {
			return v
		}
	}
	return checksum.Sum6Tail
}
