package stubserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

func decodeAndValidate(req *http.Request, validate *validator.Validate, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return err
	}

	if err := validate.Struct(v); err != nil {
		return err
	}

	return nil
}

func sendJSON(res http.ResponseWriter, statusCode int, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	_, err = res.Write(data)
	return err
}
