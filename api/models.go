package api

// ErrorResponse is the JSON body returned for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EncryptRequest asks for a plaintext to be encrypted under the stored key.
type EncryptRequest struct {
	Plaintext string `json:"plaintext"`
}

// EncryptResponse carries the base64 ciphertext, with and without the cipher
// marker prefix used for stored values.
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	Marked     string `json:"marked"`
}

// DecryptRequest accepts either raw base64 ciphertext or a marker-prefixed
// value; marked input is routed through the pass-through convention.
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext"`
}

// DecryptResponse carries the recovered plaintext.
type DecryptResponse struct {
	Plaintext string `json:"plaintext"`
}

// StatusResponse reports the key-file location and whether it exists yet.
type StatusResponse struct {
	KeyFile string `json:"key_file"`
	Present bool   `json:"present"`
}
