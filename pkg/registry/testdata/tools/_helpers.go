package tools

//pathtool:name=should_be_skipped input=input_path output=return
func ShouldBeSkipped(input_path ImageFile) (StructuredData, error) {
	return StructuredData{}, nil
}
