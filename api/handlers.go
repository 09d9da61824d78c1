package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/keyfort/keyfort/envelope"
)

func (a *API) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cipherText, err := a.keeper.Encrypt(req.Plaintext)
	if err != nil {
		mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EncryptResponse{
		Ciphertext: cipherText,
		Marked:     envelope.CipherMarker + cipherText,
	})
}

func (a *API) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var plainText string
	var err error
	if a.keeper.IsEncrypted(req.Ciphertext) {
		plainText, err = a.keeper.DecryptMarked(req.Ciphertext)
	} else {
		plainText, err = a.keeper.Decrypt(req.Ciphertext)
	}
	if err != nil {
		mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DecryptResponse{Plaintext: plainText})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	path := a.keeper.FilePath()
	info, err := os.Stat(path)
	present := err == nil && !info.IsDir()

	writeJSON(w, http.StatusOK, StatusResponse{
		KeyFile: path,
		Present: present,
	})
}
