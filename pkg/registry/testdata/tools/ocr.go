package tools

//pathtool:name=image_ocr input=input_path output=return requires=lang:Text
// extracts text regions from an image.
func OCR(input_path ImageFile, lang Text) (StructuredData, error) {
	if lang == "" {
		lang = "en"
	}
	return StructuredData{}, nil
}

//pathtool:name=translate input=text_data output=return
func Translate(text_data StructuredData) (StructuredData, error) {
	return StructuredData{}, nil
}
