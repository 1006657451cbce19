package converter

import "github.com/kirillkom/docling-reports/internal/core/ports"

// Catalog instantiates the full converter set against one extractor. The
// registry construction itself stays cheap: compiled schemas are built lazily
// on first conversion, not here.
func Catalog(extractor ports.StructuredExtractor) []ports.ReportConverter {
	specs := Specs()
	out := make([]ports.ReportConverter, 0, len(specs))
	for _, spec := range specs {
		out = append(out, NewSchemaConverter(spec, extractor))
	}
	return out
}

// Specs returns the declarative definitions of every supported report kind.
func Specs() []Spec {
	return []Spec{
		ballisticSpec(),
		bumpTestSpec(),
		vibrationSpec(),
		ammunitionLabSpec(),
		igniterTestSpec(),
		peakReportSpec(),
	}
}

func ballisticSpec() Spec {
	velocityColumns := func() map[string]any {
		return map[string]any{
			"v0_m/s":  nnum(),
			"v5_m/s":  nnum(),
			"v10_m/s": nnum(),
			"v20_m/s": nnum(),
			"v30_m/s": nnum(),
			"v45_m/s": nnum(),
			"notes":   nstr(),
		}
	}
	resultRow := velocityColumns()
	resultRow["index"] = map[string]any{"type": "integer"}
	summaryRow := velocityColumns()
	summaryRow["index"] = map[string]any{"type": "string"}

	return Spec{
		ReportID:     "ballistic",
		DisplayName:  "Ballistic Test Report",
		Description:  "Velocity summary tables with V0/V45 metrics and summary statistics.",
		DocumentKind: "ballistic test report",
		Keywords: []string{
			"ballistic test",
			"v0",
			"v20",
			"summary results",
			"velocity",
		},
		Rules: []string{
			"Extract the report metadata (date, operator) into \"report_metadata\".",
			"Extract weapon, ammunition, and atmospheric data into \"test_parameters\".",
			"Each velocity row goes into \"test_results\" with its shot index; statistic rows (avg, max, min) go into \"summary_results\" with the statistic name as index.",
		},
		Schema: root(map[string]any{
			"report_metadata": obj(map[string]any{
				"date":     nstr(),
				"operator": nstr(),
			}),
			"test_parameters": obj(map[string]any{
				"weapon_type":     nstr(),
				"weapon_sn":       nstr(),
				"ammunition_type": nstr(),
				"ammunition_sn":   nstr(),
				"air_temperature": nnum(),
				"air_pressure":    nnum(),
				"air_humidity":    nnum(),
			}),
			"test_results":    arr(obj(resultRow)),
			"summary_results": arr(obj(summaryRow)),
		}, "report_metadata", "test_parameters", "test_results", "summary_results"),
	}
}

func bumpTestSpec() Spec {
	return Spec{
		ReportID:     "bump_test",
		DisplayName:  "Bump Test Report",
		Description:  "Vibration bump test results with peak and pulse duration.",
		DocumentKind: "bump test report",
		Keywords: []string{
			"bump test",
			"accelerometer",
			"pulse duration",
			"total no of bumps",
		},
		Rules: []string{
			"Extract the general report information (title, bump test number, date, time, operator name, channel number, accelerometer sensitivity) into the \"metadata\" array as a single object.",
			"Extract all test result rows (each listed bump separately) under \"test_results\".",
		},
		Schema: root(map[string]any{
			"metadata": arr(obj(map[string]any{
				"report_title":              nstr(),
				"bump_test_number":          nint(),
				"time":                      nstr(),
				"date":                      nstr(),
				"test_operator":             nstr(),
				"channel_number":            nint(),
				"accelerometer_sensitivity": nnum(),
			})),
			"test_results": arr(obj(map[string]any{
				"peak":              nnum(),
				"pulse_duration":    nnum(),
				"velocity":          nnum(),
				"filter_cut_off":    nint(),
				"rate":              nint(),
				"total_no_of_bumps": nint(),
			})),
		}, "metadata", "test_results"),
	}
}

func vibrationSpec() Spec {
	return Spec{
		ReportID:     "vibration",
		DisplayName:  "Vibration Test Report",
		Description:  "Swept vibration schedule with control and profile tables.",
		DocumentKind: "swept vibration test report",
		Keywords: []string{
			"vibration test",
			"control parameters",
			"profile table",
			"schedule",
			"sweep rate",
		},
		Rules: []string{
			"Extract the header block into \"test_metadata\".",
			"Channel, limit, and control tables map onto their named sections; copy values verbatim including units.",
			"Every schedule row becomes one \"schedule\" entry and every profile table row one \"profile_table_parameters\" entry.",
		},
		Schema: root(map[string]any{
			"test_metadata": obj(map[string]any{
				"test_number":  nstr(),
				"object_name":  nstr(),
				"object_type":  nstr(),
				"client":       nstr(),
				"test_purpose": nstr(),
				"date":         nstr(),
			}),
			"input_channel_parameters": obj(map[string]any{
				"input_channel": nint(),
				"type":          nstr(),
				"range":         nint(),
				"weighting":     nint(),
				"couple":        nstr(),
				"transducer":    nstr(),
				"sensitivity":   nstr(),
				"polarity":      nstr(),
				"analyse":       nstr(),
				"abort_peak":    nstr(),
				"name":          nstr(),
				"dc_remove":     nstr(),
			}),
			"output_channel_parameters": obj(map[string]any{
				"output_channel": nstr(),
				"type":           nstr(),
				"range":          nint(),
			}),
			"limit_parameters": obj(map[string]any{
				"description":           nstr(),
				"maximum_force":         nstr(),
				"maximum_positive_disp": nstr(),
				"maximum_negative_disp": nstr(),
				"maximum_velocity":      nstr(),
				"maximum_acceleration":  nstr(),
				"minimum_frequency":     nstr(),
				"maximum_frequency":     nstr(),
				"maximum_input_voltage": nstr(),
				"moving_coil_mass":      nstr(),
				"fixture_mass":          nstr(),
				"specimen_mass":         nstr(),
				"other_mass":            nstr(),
				"total_weight":          nstr(),
				"drive_limit":           nstr(),
				"abort_latency":         nstr(),
				"max_gain_on_starting":  nstr(),
				"max_gain_on_running":   nstr(),
			}),
			"control_parameters": obj(map[string]any{
				"control_strategy":     nstr(),
				"sweep_mode":           nstr(),
				"lines":                nint(),
				"maximum_frequency":    nstr(),
				"filter_type":          nstr(),
				"bandwidth":            nstr(),
				"level_change_rate":    nstr(),
				"change_level":         nstr(),
				"abort_rate":           nstr(),
				"initial_drive":        nstr(),
				"ramp_up_rate":         nstr(),
				"pre_test_drive_limit": nstr(),
				"resume_from_aborting": nstr(),
			}),
			"schedule": arr(obj(map[string]any{
				"command":                nstr(),
				"level":                  nstr(),
				"frequency_low":          nstr(),
				"frequency_high":         nstr(),
				"frequency_start":        nstr(),
				"sweep_rate":             nstr(),
				"sweep_direction":        nstr(),
				"sweep_compression_rate": nstr(),
				"time_type":              nstr(),
				"time_value":             nstr(),
				"rstd_dwell":             nstr(),
				"parameters":             nstr(),
			})),
			"profile": obj(map[string]any{
				"profile_acceleration_peak":         nstr(),
				"profile_velocity_peak":             nstr(),
				"profile_displacement_peak_to_peak": nstr(),
				"shaker_acceleration_peak":          nstr(),
				"shaker_velocity_peak":              nstr(),
				"shaker_displacement_peak_to_peak":  nstr(),
			}),
			"profile_table_parameters": arr(obj(map[string]any{
				"frequency":                 nnum(),
				"acceleration":              nnum(),
				"velocity":                  nnum(),
				"displacement_peak_to_peak": nnum(),
				"left_slope":                nstr(),
				"right_slope":               nstr(),
				"high_alarm":                nnum(),
				"low_alarm":                 nnum(),
				"high_abort":                nnum(),
				"low_abort":                 nnum(),
			})),
			"sweep_rate": obj(map[string]any{
				"start_frequency": nint(),
				"sweep_rate_1":    nint(),
				"stop_frequency":  nint(),
				"sweep_rate_2":    nint(),
			}),
			"compression_rate": obj(map[string]any{
				"start_frequency":    nint(),
				"compression_rate_1": nint(),
				"stop_frequency":     nint(),
				"compression_rate_2": nint(),
			}),
			"test_information": obj(map[string]any{
				"level":              nstr(),
				"demand_peak":        nstr(),
				"control_peak":       nstr(),
				"frequency":          nstr(),
				"sweep_rate":         nstr(),
				"sweep_type":         nstr(),
				"total_elapsed_time": nstr(),
				"current_level_type": nstr(),
				"remaining_time":     nstr(),
				"file_save_time":     nstr(),
				"begin_time":         nstr(),
				"end_time":           nstr(),
			}),
		}, "test_metadata", "schedule", "profile_table_parameters"),
	}
}

func ammunitionLabSpec() Spec {
	return Spec{
		ReportID:     "ammunition_lab",
		DisplayName:  "Ammunition Laboratory Report",
		Description:  "Laboratory analysis report with test parameters and results table.",
		DocumentKind: "laboratory test report",
		Keywords: []string{
			"lab test report",
			"sample name",
			"spec limits",
			"test parameters",
		},
		Rules: []string{
			"Extract the report header and sample identification into \"test_metadata\".",
			"Every row of the results table becomes one \"test_table\" entry with its parameter, spec limits, unit, and result.",
		},
		Schema: root(map[string]any{
			"test_metadata": obj(map[string]any{
				"lab_name":                 nstr(),
				"test_report_no":           nstr(),
				"sub":                      nstr(),
				"date":                     nstr(),
				"sample_name":              nstr(),
				"item_code":                nint(),
				"spec_no":                  nstr(),
				"customer_name":            nstr(),
				"reference":                nstr(),
				"sample_type":              nstr(),
				"sample_mode":              nstr(),
				"sample_cd":                nstr(),
				"specific_req":             nstr(),
				"spec_req_det":             nstr(),
				"sampling_plan":            nstr(),
				"sample_receipt_date":      nstr(),
				"analysis_completion_date": nstr(),
				"test_condition":           nstr(),
				"remarks":                  nstr(),
				"qc_lab_reg_no":            nint(),
			}),
			"test_table": arr(obj(map[string]any{
				"test_parameters": nstr(),
				"spec_limits":     nstr(),
				"unit":            nstr(),
				"results":         nstr(),
			})),
		}, "test_metadata", "test_table"),
	}
}

func igniterTestSpec() Spec {
	return Spec{
		ReportID:     "igniter_test",
		DisplayName:  "Igniter Test Report",
		Description:  "Rocket igniter performance report with pressure and timing data.",
		DocumentKind: "rocket igniter test report",
		Keywords: []string{
			"igniter test",
			"rocket motor",
			"burn time",
			"volt",
		},
		Rules: []string{
			"Extract the test identification and electrical/timing figures into \"test_metadata\".",
			"Extract the recorded pressure and date into \"test_results\".",
		},
		Schema: root(map[string]any{
			"test_metadata": obj(map[string]any{
				"test_name":            nstr(),
				"store_name":           nstr(),
				"lot_no":               nstr(),
				"weight_of_propellant": nnum(),
				"max_pressure":         nnum(),
				"delay":                nnum(),
				"burn_time":            nnum(),
				"average":              nnum(),
				"area":                 nnum(),
				"voltage_supplied":     nnum(),
				"current_supplied":     nnum(),
			}),
			"test_results": obj(map[string]any{
				"pressure": nnum(),
				"date":     nstr(),
			}),
		}, "test_metadata", "test_results"),
	}
}

func peakReportSpec() Spec {
	return Spec{
		ReportID:     "peak_report",
		DisplayName:  "Chromatographic Peak Report",
		Description:  "Chromatography peak table with retention times and areas.",
		DocumentKind: "chromatographic peak report",
		Keywords: []string{
			"chromatographic",
			"peak",
			"retention time",
			"peak results",
		},
		Rules: []string{
			"Extract the instrument and injection header into \"test_metadata\".",
			"Every peak row becomes one \"peak_results_table\" entry; keep the peak index as printed.",
		},
		Schema: root(map[string]any{
			"test_metadata": obj(map[string]any{
				"plant_name":        nstr(),
				"name":              nstr(),
				"position":          nstr(),
				"instrument_method": nstr(),
				"volume":            nstr(),
				"type":              nstr(),
				"processor":         nstr(),
				"function":          nstr(),
			}),
			"peak_results_table": arr(obj(map[string]any{
				"index":           map[string]any{"type": []string{"integer", "string", "null"}},
				"name":            nstr(),
				"retention_time":  nnum(),
				"area":            nnum(),
				"height":          nnum(),
				"relative_height": nnum(),
			})),
		}, "test_metadata", "peak_results_table"),
	}
}

// Schema building blocks (draft 2020-12 subset, shared with the model backend).

func root(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func obj(props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func arr(items map[string]any) map[string]any {
	return map[string]any{
		"type":  "array",
		"items": items,
	}
}

func nstr() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func nnum() map[string]any {
	return map[string]any{"type": []string{"number", "null"}}
}

func nint() map[string]any {
	return map[string]any{"type": []string{"integer", "null"}}
}
