package constants

import (
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// FuelIndicatorsは、グレード名に現れる燃料種別の手がかりです。
// 判定順は電気、ハイブリッド、ディーゼル、ガソリンです。
func FuelIndicators() []FuelIndicator {
	return []FuelIndicator{
		{FuelType: model.FuelElectric, Tokens: []string{
			"eDrive", "EV", "e-tron", "EQ", "Electric", "Electrified", "EQS", "EQE", "EQA", "EQB",
		}},
		{FuelType: model.FuelHybrid, Tokens: []string{
			"e-Hybrid", "E-Hybrid", "HEV", "Hybrid", "PHEV", "4xe", "P550e", "P400e", "530e", "750e", "xDrive50e", "T8 AWD",
		}},
		{FuelType: model.FuelDiesel, Tokens: []string{
			"TDI", "CRDi", "D250", "D300", "D350", "320d", "520d", "530d", "xDrive20d", "xDrive30d", "xDrive40d",
			"GLC220d", "GLE300d", "GLB200d", "S350d", "G450d",
		}},
		{FuelType: model.FuelGasoline, Tokens: []string{
			"TFSI", "TSI", "GDi", "T-GDi", "MPI", "P300", "P400", "P530", "P615", "P250", "P360", "P635", "GTS",
			"Turbo S", "xDrive40i", "xDrive50i", "M60i", "M40i", "320i", "520i", "530i", "330i", "340i", "120",
			"220", "228", "M135", "M235", "M240i", "M340i", "M440i", "420i", "sDrive20i", "xDrive20i", "M850i",
			"GLC300", "GLE350", "GLE450", "GLS450", "GLS580", "GLB250", "GLA250", "CLA250", "C200", "E200", "E300",
			"E450", "S450", "S500", "S580", "AMG G63", "AMG GLS63", "AMG GLB35", "AMG GT 55", "AMG GT 43", "G580",
		}},
	}
}

type FuelIndicator struct {
	FuelType model.FuelType
	Tokens   []string
}
