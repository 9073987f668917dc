package models

// ExtractedFeatures holds the scalar features computed from one waveform window
type ExtractedFeatures struct {
	// RMS per phase
	RMSCurrentR float64 `json:"rmsCurrentR"`
	RMSCurrentY float64 `json:"rmsCurrentY"`
	RMSCurrentB float64 `json:"rmsCurrentB"`
	RMSVoltageR float64 `json:"rmsVoltageR"`
	RMSVoltageY float64 `json:"rmsVoltageY"`
	RMSVoltageB float64 `json:"rmsVoltageB"`

	// Peak absolute amplitude per phase
	PeakCurrentR float64 `json:"peakCurrentR"`
	PeakCurrentY float64 `json:"peakCurrentY"`
	PeakCurrentB float64 `json:"peakCurrentB"`
	PeakVoltageR float64 `json:"peakVoltageR"`
	PeakVoltageY float64 `json:"peakVoltageY"`
	PeakVoltageB float64 `json:"peakVoltageB"`

	// Total harmonic distortion per phase
	THDCurrentR float64 `json:"thdCurrentR"`
	THDCurrentY float64 `json:"thdCurrentY"`
	THDCurrentB float64 `json:"thdCurrentB"`
	THDVoltageR float64 `json:"thdVoltageR"`
	THDVoltageY float64 `json:"thdVoltageY"`
	THDVoltageB float64 `json:"thdVoltageB"`

	// Simplified symmetrical components on RMS magnitudes
	PosSeqCurrent  float64 `json:"posSeqCurrent"`
	NegSeqCurrent  float64 `json:"negSeqCurrent"`
	ZeroSeqCurrent float64 `json:"zeroSeqCurrent"`
	PosSeqVoltage  float64 `json:"posSeqVoltage"`
	NegSeqVoltage  float64 `json:"negSeqVoltage"`
	ZeroSeqVoltage float64 `json:"zeroSeqVoltage"`

	// Power per phase
	ActivePowerR   float64 `json:"activePowerR"`
	ActivePowerY   float64 `json:"activePowerY"`
	ActivePowerB   float64 `json:"activePowerB"`
	ReactivePowerR float64 `json:"reactivePowerR"`
	ReactivePowerY float64 `json:"reactivePowerY"`
	ReactivePowerB float64 `json:"reactivePowerB"`

	Frequency          float64 `json:"frequency"`
	FrequencyDeviation float64 `json:"frequencyDeviation"`

	// Moments of the pooled three-phase signals
	SkewnessCurrent float64 `json:"skewnessCurrent"`
	KurtosisCurrent float64 `json:"kurtosisCurrent"`
	SkewnessVoltage float64 `json:"skewnessVoltage"`
	KurtosisVoltage float64 `json:"kurtosisVoltage"`

	CurrentUnbalance float64 `json:"currentUnbalance"`
	VoltageUnbalance float64 `json:"voltageUnbalance"`
	CurrentDropRatio float64 `json:"currentDropRatio"`
	VoltageDropRatio float64 `json:"voltageDropRatio"`
}

// FeatureNames lists the entries of Vector in order. Model artifacts and
// scalers are trained against this ordering.
var FeatureNames = []string{
	"rms_current_r", "rms_current_y", "rms_current_b",
	"rms_voltage_r", "rms_voltage_y", "rms_voltage_b",
	"peak_current_r", "peak_current_y", "peak_current_b",
	"peak_voltage_r", "peak_voltage_y", "peak_voltage_b",
	"thd_current_r", "thd_current_y", "thd_current_b",
	"thd_voltage_r", "thd_voltage_y", "thd_voltage_b",
	"pos_seq_current", "neg_seq_current", "zero_seq_current",
	"pos_seq_voltage", "neg_seq_voltage", "zero_seq_voltage",
	"active_power_r", "active_power_y", "active_power_b",
	"reactive_power_r", "reactive_power_y", "reactive_power_b",
	"frequency", "frequency_deviation",
	"skewness_current", "kurtosis_current",
	"skewness_voltage", "kurtosis_voltage",
	"current_unbalance", "voltage_unbalance",
	"current_drop_ratio", "voltage_drop_ratio",
}

// FeatureCount is the length of Vector
var FeatureCount = len(FeatureNames)

// Vector flattens the features in FeatureNames order
func (f ExtractedFeatures) Vector() []float64 {
	return []float64{
		f.RMSCurrentR, f.RMSCurrentY, f.RMSCurrentB,
		f.RMSVoltageR, f.RMSVoltageY, f.RMSVoltageB,
		f.PeakCurrentR, f.PeakCurrentY, f.PeakCurrentB,
		f.PeakVoltageR, f.PeakVoltageY, f.PeakVoltageB,
		f.THDCurrentR, f.THDCurrentY, f.THDCurrentB,
		f.THDVoltageR, f.THDVoltageY, f.THDVoltageB,
		f.PosSeqCurrent, f.NegSeqCurrent, f.ZeroSeqCurrent,
		f.PosSeqVoltage, f.NegSeqVoltage, f.ZeroSeqVoltage,
		f.ActivePowerR, f.ActivePowerY, f.ActivePowerB,
		f.ReactivePowerR, f.ReactivePowerY, f.ReactivePowerB,
		f.Frequency, f.FrequencyDeviation,
		f.SkewnessCurrent, f.KurtosisCurrent,
		f.SkewnessVoltage, f.KurtosisVoltage,
		f.CurrentUnbalance, f.VoltageUnbalance,
		f.CurrentDropRatio, f.VoltageDropRatio,
	}
}
