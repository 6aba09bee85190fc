// Package openapi содержит встроенный OpenAPI-документ планировщика
package openapi

import (
	"embed"
)

//go:embed api.swagger.json
var specFS embed.FS

// GetSpec возвращает OpenAPI-документ в формате JSON
func GetSpec() ([]byte, error) {
	return specFS.ReadFile("api.swagger.json")
}

// MustGetSpec возвращает документ или паникует при ошибке чтения
func MustGetSpec() []byte {
	data, err := GetSpec()
	if err != nil {
		panic("failed to load OpenAPI spec: " + err.Error())
	}
	return data
}
