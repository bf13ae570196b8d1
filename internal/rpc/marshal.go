package rpc

// Field numbers must match legacykeeper.proto.

func (m *Address) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Line1)
	b = appendString(b, 2, m.Line2)
	b = appendString(b, 3, m.City)
	b = appendString(b, 4, m.PostalCode)
	b = appendString(b, 5, m.Country)
	return b
}

func (m *Address) readWire(b []byte) error {
	*m = Address{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Line1 = f.str()
		case 2:
			m.Line2 = f.str()
		case 3:
			m.City = f.str()
		case 4:
			m.PostalCode = f.str()
		case 5:
			m.Country = f.str()
		}
		return nil
	})
}

func (m *Beneficiary) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Email)
	b = appendString(b, 4, m.Language)
	b = appendMessage(b, 5, &m.Address)
	b = appendString(b, 6, m.Status)
	return b
}

func (m *Beneficiary) readWire(b []byte) error {
	*m = Beneficiary{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.str()
		case 2:
			m.Name = f.str()
		case 3:
			m.Email = f.str()
		case 4:
			m.Language = f.str()
		case 5:
			v, err := readInto[Address](f)
			if err != nil {
				return err
			}
			m.Address = v
		case 6:
			m.Status = f.str()
		}
		return nil
	})
}

func (m *Asset) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.VaultID)
	b = appendString(b, 3, m.StoragePath)
	b = appendBytes(b, 4, m.Salt)
	b = appendBytes(b, 5, m.Nonce)
	b = appendString(b, 6, m.Checksum)
	b = appendInt(b, 7, m.SizeBytes)
	b = appendString(b, 8, m.Category)
	b = appendString(b, 9, m.Format)
	b = appendInt(b, 10, int64(m.ChunkSize))
	return b
}

func (m *Asset) readWire(b []byte) error {
	*m = Asset{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.str()
		case 2:
			m.VaultID = f.str()
		case 3:
			m.StoragePath = f.str()
		case 4:
			m.Salt = f.bytes()
		case 5:
			m.Nonce = f.bytes()
		case 6:
			m.Checksum = f.str()
		case 7:
			m.SizeBytes = f.int64()
		case 8:
			m.Category = f.str()
		case 9:
			m.Format = f.str()
		case 10:
			m.ChunkSize = f.int32()
		}
		return nil
	})
}

func (m *CreateVaultRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	b = appendString(b, 2, m.OwnerEmail)
	b = appendString(b, 3, m.Language)
	b = appendString(b, 4, m.EncryptionHint)
	b = appendInt(b, 5, int64(m.HeartbeatFrequencyDays))
	b = appendInt(b, 6, int64(m.GracePeriodDays))
	b = appendBool(b, 7, m.PhysicalDelivery)
	b = appendBytes(b, 8, m.RecoveryCiphertext)
	b = appendBytes(b, 9, m.RecoverySalt)
	b = appendBytes(b, 10, m.RecoveryNonce)
	for i := range m.Beneficiaries {
		b = appendMessage(b, 11, &m.Beneficiaries[i])
	}
	return b
}

func (m *CreateVaultRequest) readWire(b []byte) error {
	*m = CreateVaultRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserID = f.str()
		case 2:
			m.OwnerEmail = f.str()
		case 3:
			m.Language = f.str()
		case 4:
			m.EncryptionHint = f.str()
		case 5:
			m.HeartbeatFrequencyDays = f.int32()
		case 6:
			m.GracePeriodDays = f.int32()
		case 7:
			m.PhysicalDelivery = f.bool()
		case 8:
			m.RecoveryCiphertext = f.bytes()
		case 9:
			m.RecoverySalt = f.bytes()
		case 10:
			m.RecoveryNonce = f.bytes()
		case 11:
			v, err := readInto[Beneficiary](f)
			if err != nil {
				return err
			}
			m.Beneficiaries = append(m.Beneficiaries, v)
		}
		return nil
	})
}

func (m *CreateVaultResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	b = appendString(b, 2, m.Status)
	for i := range m.Beneficiaries {
		b = appendMessage(b, 3, &m.Beneficiaries[i])
	}
	return b
}

func (m *CreateVaultResponse) readWire(b []byte) error {
	*m = CreateVaultResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		case 2:
			m.Status = f.str()
		case 3:
			v, err := readInto[Beneficiary](f)
			if err != nil {
				return err
			}
			m.Beneficiaries = append(m.Beneficiaries, v)
		}
		return nil
	})
}

func (m *ConfirmHeartbeatRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	b = appendString(b, 2, m.LinkToken)
	return b
}

func (m *ConfirmHeartbeatRequest) readWire(b []byte) error {
	*m = ConfirmHeartbeatRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		case 2:
			m.LinkToken = f.str()
		}
		return nil
	})
}

func (m *ConfirmHeartbeatResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	return b
}

func (m *ConfirmHeartbeatResponse) readWire(b []byte) error {
	*m = ConfirmHeartbeatResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		}
		return nil
	})
}

func (m *RequestUploadRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	return b
}

func (m *RequestUploadRequest) readWire(b []byte) error {
	*m = RequestUploadRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		}
		return nil
	})
}

func (m *RequestUploadResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.StoragePath)
	b = appendString(b, 2, m.URL)
	return b
}

func (m *RequestUploadResponse) readWire(b []byte) error {
	*m = RequestUploadResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.StoragePath = f.str()
		case 2:
			m.URL = f.str()
		}
		return nil
	})
}

func (m *RegisterAssetRequest) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Asset)
	b = appendString(b, 2, m.Replaces)
	return b
}

func (m *RegisterAssetRequest) readWire(b []byte) error {
	*m = RegisterAssetRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := readInto[Asset](f)
			if err != nil {
				return err
			}
			m.Asset = v
		case 2:
			m.Replaces = f.str()
		}
		return nil
	})
}

func (m *RegisterAssetResponse) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Asset)
	return b
}

func (m *RegisterAssetResponse) readWire(b []byte) error {
	*m = RegisterAssetResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := readInto[Asset](f)
			if err != nil {
				return err
			}
			m.Asset = v
		}
		return nil
	})
}

func (m *ListAssetsRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	return b
}

func (m *ListAssetsRequest) readWire(b []byte) error {
	*m = ListAssetsRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		}
		return nil
	})
}

func (m *ListAssetsResponse) appendWire(b []byte) []byte {
	for i := range m.Assets {
		b = appendMessage(b, 1, &m.Assets[i])
	}
	return b
}

func (m *ListAssetsResponse) readWire(b []byte) error {
	*m = ListAssetsResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := readInto[Asset](f)
			if err != nil {
				return err
			}
			m.Assets = append(m.Assets, v)
		}
		return nil
	})
}

func (m *RunReleaseCycleRequest) appendWire(b []byte) []byte { return b }

func (m *RunReleaseCycleRequest) readWire(b []byte) error {
	*m = RunReleaseCycleRequest{}
	return eachField(b, func(field) error { return nil })
}

func (m *BeneficiaryResult) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BeneficiaryID)
	b = appendString(b, 2, m.Outcome)
	b = appendString(b, 3, m.TrackingNumber)
	b = appendString(b, 4, m.Error)
	return b
}

func (m *BeneficiaryResult) readWire(b []byte) error {
	*m = BeneficiaryResult{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.BeneficiaryID = f.str()
		case 2:
			m.Outcome = f.str()
		case 3:
			m.TrackingNumber = f.str()
		case 4:
			m.Error = f.str()
		}
		return nil
	})
}

func (m *VaultResult) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	b = appendString(b, 2, m.Outcome)
	b = appendString(b, 3, m.Error)
	for i := range m.Beneficiaries {
		b = appendMessage(b, 4, &m.Beneficiaries[i])
	}
	return b
}

func (m *VaultResult) readWire(b []byte) error {
	*m = VaultResult{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		case 2:
			m.Outcome = f.str()
		case 3:
			m.Error = f.str()
		case 4:
			v, err := readInto[BeneficiaryResult](f)
			if err != nil {
				return err
			}
			m.Beneficiaries = append(m.Beneficiaries, v)
		}
		return nil
	})
}

func (m *PhaseSummary) appendWire(b []byte) []byte {
	b = appendInt(b, 1, int64(m.Processed))
	for i := range m.Results {
		b = appendMessage(b, 2, &m.Results[i])
	}
	return b
}

func (m *PhaseSummary) readWire(b []byte) error {
	*m = PhaseSummary{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Processed = f.int32()
		case 2:
			v, err := readInto[VaultResult](f)
			if err != nil {
				return err
			}
			m.Results = append(m.Results, v)
		}
		return nil
	})
}

func (m *RunReleaseCycleResponse) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.WarningPhase)
	b = appendMessage(b, 2, &m.ReleasePhase)
	return b
}

func (m *RunReleaseCycleResponse) readWire(b []byte) error {
	*m = RunReleaseCycleResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := readInto[PhaseSummary](f)
			if err != nil {
				return err
			}
			m.WarningPhase = v
		case 2:
			v, err := readInto[PhaseSummary](f)
			if err != nil {
				return err
			}
			m.ReleasePhase = v
		}
		return nil
	})
}

func (m *ReleaseTokenRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Token)
	return b
}

func (m *ReleaseTokenRequest) readWire(b []byte) error {
	*m = ReleaseTokenRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Token = f.str()
		}
		return nil
	})
}

func (m *VerifyReleaseTokenResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	b = appendString(b, 2, m.BeneficiaryName)
	b = appendString(b, 3, m.EncryptionHint)
	b = appendTime(b, 4, m.TokenExpiresAt)
	for i := range m.Assets {
		b = appendMessage(b, 5, &m.Assets[i])
	}
	return b
}

func (m *VerifyReleaseTokenResponse) readWire(b []byte) error {
	*m = VerifyReleaseTokenResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		case 2:
			m.BeneficiaryName = f.str()
		case 3:
			m.EncryptionHint = f.str()
		case 4:
			t, err := f.time()
			if err != nil {
				return err
			}
			m.TokenExpiresAt = t
		case 5:
			v, err := readInto[Asset](f)
			if err != nil {
				return err
			}
			m.Assets = append(m.Assets, v)
		}
		return nil
	})
}

func (m *ConsumeReleaseTokenResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Grant)
	b = appendString(b, 2, m.VaultID)
	b = appendTime(b, 3, m.ExpiresAt)
	return b
}

func (m *ConsumeReleaseTokenResponse) readWire(b []byte) error {
	*m = ConsumeReleaseTokenResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Grant = f.str()
		case 2:
			m.VaultID = f.str()
		case 3:
			t, err := f.time()
			if err != nil {
				return err
			}
			m.ExpiresAt = t
		}
		return nil
	})
}

func (m *GetAssetDownloadRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.AssetID)
	return b
}

func (m *GetAssetDownloadRequest) readWire(b []byte) error {
	*m = GetAssetDownloadRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.AssetID = f.str()
		}
		return nil
	})
}

func (m *GetAssetDownloadResponse) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Asset)
	b = appendString(b, 2, m.URL)
	return b
}

func (m *GetAssetDownloadResponse) readWire(b []byte) error {
	*m = GetAssetDownloadResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := readInto[Asset](f)
			if err != nil {
				return err
			}
			m.Asset = v
		case 2:
			m.URL = f.str()
		}
		return nil
	})
}

func (m *GetRecoveryMaterialRequest) appendWire(b []byte) []byte { return b }

func (m *GetRecoveryMaterialRequest) readWire(b []byte) error {
	*m = GetRecoveryMaterialRequest{}
	return eachField(b, func(field) error { return nil })
}

func (m *GetRecoveryMaterialResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.VaultID)
	b = appendBytes(b, 2, m.Ciphertext)
	b = appendBytes(b, 3, m.Salt)
	b = appendBytes(b, 4, m.Nonce)
	b = appendString(b, 5, m.EncryptionHint)
	return b
}

func (m *GetRecoveryMaterialResponse) readWire(b []byte) error {
	*m = GetRecoveryMaterialResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.VaultID = f.str()
		case 2:
			m.Ciphertext = f.bytes()
		case 3:
			m.Salt = f.bytes()
		case 4:
			m.Nonce = f.bytes()
		case 5:
			m.EncryptionHint = f.str()
		}
		return nil
	})
}
