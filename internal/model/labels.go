package model

var statusLabels = map[DatasetStatus]string{
	DatasetStatusQueued:    "Queued",
	DatasetStatusUploading: "Transferring data",
	DatasetStatusAnalyzing: "Analyzing",
	DatasetStatusDone:      "Done",
	DatasetStatusFailed:    "Failed",
}

var stepLabels = map[DatasetStep]string{
	DatasetStepInitialAnalysis: "Initial analysis",
}

var methodLabels = map[ImputationMethod]string{
	MethodRandomFromExisting: "Random existing value",
	MethodCategoricalMode:    "Most frequent value",
	MethodDropRow:            "Drop the row",
	MethodConstant:           "Fixed value",
	MethodChooseValue:        "Choose a value",
	MethodNumericMedian:      "Median",
	MethodNumericMean:        "Mean",
	MethodRandomRange:        "Random (min,max)",
}

// StatusLabel returns a human readable label, falling back to the raw status.
func StatusLabel(s DatasetStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func StepLabel(s DatasetStep) string {
	if l, ok := stepLabels[s]; ok {
		return l
	}
	return string(s)
}

func MethodLabel(m ImputationMethod) string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}
