package services

// IsWireTrue reports whether a string-typed wire boolean is truthy.
// Compute units send both "true"/"false" and "1"/"0" depending on the
// endpoint; this is the single place that comparison happens.
func IsWireTrue(value string) bool {
	return value == "true" || value == "1"
}

// DeriveFeatures converts the app-assignment list into the feature
// labels of one streamer. Only active assignments with both an app name
// and a config template name yield a label, formatted as
// "appName.templateName". Order follows the assignment list and
// duplicates are kept as-is.
func DeriveFeatures(streamerUUID string, assignments []AppAssignment) []string {
	features := make([]string, 0)
	for _, assignment := range assignments {
		if assignment.StreamerUUID != streamerUUID {
			continue
		}
		if !IsWireTrue(assignment.IsActive) {
			continue
		}
		if assignment.AppName == "" || assignment.AppConfigTemplateName == "" {
			continue
		}
		features = append(features, assignment.AppName+"."+assignment.AppConfigTemplateName)
	}
	return features
}
