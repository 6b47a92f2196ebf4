// Package costing computes per-meter fabric cost from yarn parameters.
package costing

const (
	denierPerCount = 5315.0
	kgDenominator  = 9000000.0
	inchesPerMeter = 39.3701
	costingGSTRate = 0.05

	defaultRateExtra = 5.0
)

// RateMode selects how the quoted yarn rate is adjusted.
type RateMode string

const (
	RateFinal    RateMode = "final"
	RatePlus     RateMode = "plus"
	RatePlusPlus RateMode = "plusplus"
)

// DenierUnit says whether a yarn size is given in denier or count.
type DenierUnit string

const (
	UnitDenier DenierUnit = "denier"
	UnitCount  DenierUnit = "count"
)

// WarpInput describes the warp yarn.
type WarpInput struct {
	TotalEnds  float64    `json:"totalEnds"`
	Denier     float64    `json:"denier"`
	DenierUnit DenierUnit `json:"denierUnit"`
	Rate       float64    `json:"rate"`
	RateMode   RateMode   `json:"rateMode"`
	RateExtra  *float64   `json:"rateExtra,omitempty"`
}

// WeftInput describes one weft yarn in the pick ratio.
type WeftInput struct {
	Name       string     `json:"name"`
	Ratio      float64    `json:"ratio"`
	Denier     float64    `json:"denier"`
	DenierUnit DenierUnit `json:"denierUnit"`
	Rate       float64    `json:"rate"`
	RateMode   RateMode   `json:"rateMode"`
	RateExtra  *float64   `json:"rateExtra,omitempty"`
	// Shortage overrides the config-level shortage percentage when set.
	Shortage *float64 `json:"shortage,omitempty"`
}

// WeftConfig holds loom-level weft parameters.
type WeftConfig struct {
	PicksPerInch float64 `json:"picksPerInch"`
	PannoInches  float64 `json:"pannoInches"`
	Shortage     float64 `json:"shortage"`
}

// QuoteInput is the full calculator state.
type QuoteInput struct {
	Warp       WarpInput   `json:"warp"`
	Wefts      []WeftInput `json:"wefts"`
	WeftConfig WeftConfig  `json:"weftConfig"`
	Additional struct {
		KhataKharch float64 `json:"khataKharch"`
	} `json:"additional"`
	Pricing struct {
		SalePrice float64 `json:"salePrice"`
	} `json:"pricing"`
}

// WarpResult carries derived warp figures.
type WarpResult struct {
	TotalEnds      float64 `json:"totalEnds"`
	Denier         float64 `json:"denier"`
	BaseRate       float64 `json:"baseRate"`
	FinalRate      float64 `json:"finalRate"`
	WeightPerMeter float64 `json:"weightPerMeter"`
	WeightPer100m  float64 `json:"weightPer100m"`
	CostPerMeter   float64 `json:"costPerMeter"`
	CostPer100m    float64 `json:"costPer100m"`
}

// WeftResult carries derived figures for one weft.
type WeftResult struct {
	Name            string  `json:"name"`
	Ratio           float64 `json:"ratio"`
	Fraction        float64 `json:"fraction"`
	EffectivePick   float64 `json:"effectivePick"`
	Denier          float64 `json:"denier"`
	ShortagePercent float64 `json:"shortagePercent"`
	BaseRate        float64 `json:"baseRate"`
	FinalRate       float64 `json:"finalRate"`
	WeightPerMeter  float64 `json:"weightPerMeter"`
	WeightPer100m   float64 `json:"weightPer100m"`
	CostPerMeter    float64 `json:"costPerMeter"`
	CostPer100m     float64 `json:"costPer100m"`
}

// Summary aggregates the per-meter cost sheet.
type Summary struct {
	YarnCostPerMeter float64 `json:"yarnCostPerMeter"`
	KhataKharch      float64 `json:"khataKharch"`
	CostBeforeGst    float64 `json:"costBeforeGst"`
	GSTAmount        float64 `json:"gstAmount"`
	TotalWithGst     float64 `json:"totalWithGst"`
	CostPerPick      float64 `json:"costPerPick"`
	PicksPerMeter    float64 `json:"picksPerMeter"`
	ProfitPerMeter   float64 `json:"profitPerMeter"`
	MarginPercent    float64 `json:"marginPercent"`
	SalePrice        float64 `json:"salePrice"`
}

// Quote is the full calculator output.
type Quote struct {
	Warp    WarpResult   `json:"warp"`
	Wefts   []WeftResult `json:"wefts"`
	Summary Summary      `json:"summary"`
}

// ToDenier converts a yarn size to denier. Count converts as 5315/count.
func ToDenier(value float64, unit DenierUnit) float64 {
	if value == 0 {
		return 0
	}
	if unit == UnitCount {
		return denierPerCount / value
	}
	return value
}

func applyRateMode(rate float64, mode RateMode, extra *float64) float64 {
	if rate == 0 {
		return 0
	}
	addOn := defaultRateExtra
	if extra != nil {
		addOn = *extra
	}
	switch mode {
	case RatePlus:
		return rate * 1.05
	case RatePlusPlus:
		return (rate + addOn) * 1.05
	default:
		return rate
	}
}

// CalculateWarp derives the warp cost sheet.
func CalculateWarp(warp WarpInput) WarpResult {
	denier := ToDenier(warp.Denier, warp.DenierUnit)
	finalRate := applyRateMode(warp.Rate, warp.RateMode, warp.RateExtra)
	var weightPerMeter float64
	if warp.TotalEnds != 0 && denier != 0 {
		weightPerMeter = warp.TotalEnds * denier / kgDenominator
	}
	costPerMeter := weightPerMeter * finalRate
	return WarpResult{
		TotalEnds:      warp.TotalEnds,
		Denier:         denier,
		BaseRate:       warp.Rate,
		FinalRate:      finalRate,
		WeightPerMeter: weightPerMeter,
		WeightPer100m:  weightPerMeter * 100,
		CostPerMeter:   costPerMeter,
		CostPer100m:    costPerMeter * 100,
	}
}

// CalculateWefts derives each weft's cost sheet. Ratios split the picks per
// inch proportionally; non-positive ratios contribute nothing.
func CalculateWefts(wefts []WeftInput, cfg WeftConfig) []WeftResult {
	var totalRatio float64
	for _, weft := range wefts {
		if weft.Ratio > 0 {
			totalRatio += weft.Ratio
		}
	}

	results := make([]WeftResult, 0, len(wefts))
	for _, weft := range wefts {
		ratio := weft.Ratio
		if ratio < 0 {
			ratio = 0
		}
		var fraction float64
		if totalRatio > 0 {
			fraction = ratio / totalRatio
		}
		effectivePick := cfg.PicksPerInch * fraction
		denier := ToDenier(weft.Denier, weft.DenierUnit)
		shortagePercent := cfg.Shortage
		if weft.Shortage != nil {
			shortagePercent = *weft.Shortage
		}
		shortage := shortagePercent / 100
		finalRate := applyRateMode(weft.Rate, weft.RateMode, weft.RateExtra)
		var baseWeight float64
		if effectivePick != 0 && denier != 0 && cfg.PannoInches != 0 {
			baseWeight = effectivePick * denier * cfg.PannoInches / kgDenominator
		}
		weightPerMeter := baseWeight * (1 + shortage)
		costPerMeter := weightPerMeter * finalRate

		results = append(results, WeftResult{
			Name:            weft.Name,
			Ratio:           ratio,
			Fraction:        fraction,
			EffectivePick:   effectivePick,
			Denier:          denier,
			ShortagePercent: shortage * 100,
			BaseRate:        weft.Rate,
			FinalRate:       finalRate,
			WeightPerMeter:  weightPerMeter,
			WeightPer100m:   weightPerMeter * 100,
			CostPerMeter:    costPerMeter,
			CostPer100m:     costPerMeter * 100,
		})
	}
	return results
}

// CalculateQuote derives the complete per-meter cost sheet. All zero inputs
// yield zero outputs, never errors.
func CalculateQuote(input QuoteInput) Quote {
	warp := CalculateWarp(input.Warp)
	wefts := CalculateWefts(input.Wefts, input.WeftConfig)

	yarnCost := warp.CostPerMeter
	for _, weft := range wefts {
		yarnCost += weft.CostPerMeter
	}
	costBeforeGst := yarnCost + input.Additional.KhataKharch
	gstAmount := costBeforeGst * costingGSTRate
	picksPerMeter := input.WeftConfig.PicksPerInch * inchesPerMeter
	var costPerPick float64
	if picksPerMeter != 0 {
		costPerPick = costBeforeGst / picksPerMeter
	}
	salePrice := input.Pricing.SalePrice
	var profitPerMeter float64
	if salePrice != 0 {
		profitPerMeter = salePrice - costBeforeGst
	}
	var marginPercent float64
	if costBeforeGst != 0 {
		marginPercent = profitPerMeter / costBeforeGst * 100
	}

	return Quote{
		Warp:  warp,
		Wefts: wefts,
		Summary: Summary{
			YarnCostPerMeter: yarnCost,
			KhataKharch:      input.Additional.KhataKharch,
			CostBeforeGst:    costBeforeGst,
			GSTAmount:        gstAmount,
			TotalWithGst:     costBeforeGst + gstAmount,
			CostPerPick:      costPerPick,
			PicksPerMeter:    picksPerMeter,
			ProfitPerMeter:   profitPerMeter,
			MarginPercent:    marginPercent,
			SalePrice:        salePrice,
		},
	}
}
