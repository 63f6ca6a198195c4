package pdfops

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// alwaysGranted are the permissions every encrypted output carries.
const alwaysGranted = model.PermissionModAnnFillForm |
	model.PermissionFillRev3 |
	model.PermissionExtractRev3 |
	model.PermissionAssembleRev3

// Flags turns the request permissions into the PDF permission bits.
func (p *Permissions) Flags() model.PermissionFlags {
	flags := model.PermissionsNone | alwaysGranted
	if p == nil || allowed(p.Print) {
		flags |= model.PermissionPrintRev2 | model.PermissionPrintRev3
	}
	if p == nil || allowed(p.Copy) {
		flags |= model.PermissionExtract
	}
	if p == nil || allowed(p.Modify) {
		flags |= model.PermissionModify
	}
	return flags
}

func allowed(b *bool) bool {
	return b == nil || *b
}

// Encrypt writes data protected with AES-256 and the requested permissions.
func (e *Engine) Encrypt(data []byte, req EncryptRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conf := model.NewAESConfiguration(req.UserPassword, req.ownerPassword(), 256)
	conf.ValidationMode = e.ValidationMode
	conf.Permissions = req.Permissions.Flags()

	var buf bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrEncryption, err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens data with password and writes it back without encryption.
func (e *Engine) Decrypt(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, apierr.Missing("Password is required")
	}

	conf := e.config()
	conf.UserPW = password
	conf.OwnerPW = password

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &buf, conf); err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, apierr.ErrInvalidPassword)
		}
		return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err)
	}
	return buf.Bytes(), nil
}
