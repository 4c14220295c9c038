// internal/services/installation_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/assetgrid/itam-backend/internal/config"
	"github.com/assetgrid/itam-backend/internal/models"
	"github.com/assetgrid/itam-backend/internal/utils"
)

type InstallationTestSuite struct {
	suite.Suite
	db            *gorm.DB
	locks         *utils.KeyedMutex
	catalog       *CatalogService
	pools         *LicensePoolService
	assets        *AssetService
	installations *InstallationService
	lifecycle     *LifecycleService
	office        *models.Product
	laptop        *models.Product
	workstation   *models.Asset
}

func (suite *InstallationTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.locks = utils.NewKeyedMutex()
	suite.catalog = NewCatalogService(suite.db, 0)
	suite.pools = NewLicensePoolService(suite.db, suite.locks)
	suite.assets = NewAssetService(suite.db, suite.catalog, suite.locks, config.PolicyConfig{})
	suite.installations = NewInstallationService(suite.db, suite.catalog, suite.pools, suite.locks)
	suite.lifecycle = NewLifecycleService(suite.db, suite.locks, nil, nil, config.LabelConfig{MaxBulkAssets: 100, Workers: 2})
	suite.office = seedSoftwareProduct(suite.T(), suite.db, "Office Suite", models.SoftwareTypeApplication)
	suite.laptop = seedHardwareProduct(suite.T(), suite.db, "ThinkPad X1")

	asset, err := suite.assets.CreateAsset(&CreateAssetRequest{
		SerialNumber: "SN-MAIN",
		ProductID:    suite.laptop.ID,
		AssetType:    "standalone",
	})
	suite.Require().NoError(err)
	suite.workstation = asset
}

func (suite *InstallationTestSuite) TestSoftwareTypeDerivedFromProduct() {
	os := seedSoftwareProduct(suite.T(), suite.db, "Ubuntu LTS", models.SoftwareTypeOperatingSystem)

	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: os.ID,
		Version:           "24.04",
	})
	suite.Require().NoError(err)
	suite.Equal(models.SoftwareTypeOperatingSystem, installation.SoftwareType)
	suite.Nil(installation.LicenseID)
}

func (suite *InstallationTestSuite) TestAddOnDeletedAssetRejected() {
	suite.Require().NoError(suite.lifecycle.SoftDelete(suite.workstation.ID))

	_, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
	})
	assertDomainCode(suite.T(), err, CodeAlreadyDeleted)
}

func (suite *InstallationTestSuite) TestAddNonSoftwareProductRejected() {
	_, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.laptop.ID,
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)
}

func (suite *InstallationTestSuite) TestAddInactiveProductRejected() {
	suite.Require().NoError(suite.db.Model(suite.office).Update("is_active", false).Error)

	_, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)
}

func (suite *InstallationTestSuite) TestAddUnknownPoolRejected() {
	phantom := models.LicensePool{}
	phantom.ID = suite.workstation.ID // any uuid that is not a pool

	_, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &phantom.ID,
	})
	assertDomainCode(suite.T(), err, CodeValidationFailed)

	// The failed request must not leave a row behind.
	installations, err := suite.installations.ListForAsset(suite.workstation.ID)
	suite.Require().NoError(err)
	suite.Empty(installations)
}

func (suite *InstallationTestSuite) TestUpdateMetadataAtFullCapacity() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
		Version:           "1.0",
	})
	suite.Require().NoError(err)

	// Re-sending the held pool while editing metadata is not a second seat.
	version := "2.0"
	updated, err := suite.installations.UpdateInstallation(installation.ID, &UpdateInstallationRequest{
		LicenseID: &pool.ID,
		Version:   &version,
	})
	suite.Require().NoError(err)
	suite.Equal("2.0", updated.Version)
	suite.Require().NotNil(updated.LicenseID)
	suite.Equal(pool.ID, *updated.LicenseID)
}

func (suite *InstallationTestSuite) TestPoolSwapFailurePreservesBinding() {
	poolA := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	poolB := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)

	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &poolA.ID,
		Version:           "1.0",
	})
	suite.Require().NoError(err)

	// Fill pool B from another asset.
	other, err := suite.assets.CreateAsset(&CreateAssetRequest{
		SerialNumber: "SN-OTHER",
		ProductID:    suite.laptop.ID,
		AssetType:    "standalone",
	})
	suite.Require().NoError(err)
	_, err = suite.installations.AddInstallation(other.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &poolB.ID,
	})
	suite.Require().NoError(err)

	version := "2.0"
	_, err = suite.installations.UpdateInstallation(installation.ID, &UpdateInstallationRequest{
		LicenseID: &poolB.ID,
		Version:   &version,
	})
	assertDomainCode(suite.T(), err, CodePoolExhausted)

	// The whole edit rolled back: old binding and old metadata intact.
	reloaded, err := suite.installations.GetInstallation(installation.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(reloaded.LicenseID)
	suite.Equal(poolA.ID, *reloaded.LicenseID)
	suite.Equal("1.0", reloaded.Version)
}

func (suite *InstallationTestSuite) TestPoolSwapMovesSeat() {
	poolA := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	poolB := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)

	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &poolA.ID,
	})
	suite.Require().NoError(err)

	updated, err := suite.installations.UpdateInstallation(installation.ID, &UpdateInstallationRequest{
		LicenseID: &poolB.ID,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.LicenseID)
	suite.Equal(poolB.ID, *updated.LicenseID)

	availableA, err := suite.pools.AvailableCount(poolA.ID)
	suite.Require().NoError(err)
	suite.Equal(1, availableA)
	availableB, err := suite.pools.AvailableCount(poolB.ID)
	suite.Require().NoError(err)
	suite.Equal(0, availableB)
}

func (suite *InstallationTestSuite) TestClearLicense() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	updated, err := suite.installations.UpdateInstallation(installation.ID, &UpdateInstallationRequest{
		ClearLicense: true,
	})
	suite.Require().NoError(err)
	suite.Nil(updated.LicenseID)

	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, available)
}

func (suite *InstallationTestSuite) TestDateChangeRevalidatedWhilePoolHeld() {
	expiration := time.Now().Add(24 * time.Hour)
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, &expiration)

	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
		InstallationDate:  timePtr(time.Now()),
	})
	suite.Require().NoError(err)

	_, err = suite.installations.UpdateInstallation(installation.ID, &UpdateInstallationRequest{
		InstallationDate: timePtr(time.Now().Add(48 * time.Hour)),
	})
	assertDomainCode(suite.T(), err, CodeDateAfterExpiration)
}

func (suite *InstallationTestSuite) TestRemoveFreesSeat() {
	pool := seedLicensePool(suite.T(), suite.db, suite.office.ID, 1, nil)
	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &pool.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.installations.RemoveInstallation(installation.ID))

	available, err := suite.pools.AvailableCount(pool.ID)
	suite.Require().NoError(err)
	suite.Equal(1, available)

	_, err = suite.installations.GetInstallation(installation.ID)
	assertDomainCode(suite.T(), err, CodeNotFound)
}

// An edit must serialize against the pool the installation holds at lock
// time, not the pool it held when the edit began.
func (suite *InstallationTestSuite) TestUpdateLocksPoolHeldAtLockTime() {
	poolA := seedLicensePool(suite.T(), suite.db, suite.office.ID, 2, nil)
	poolB := seedLicensePool(suite.T(), suite.db, suite.office.ID, 2, nil)

	installation, err := suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
		LicenseID:         &poolA.ID,
	})
	suite.Require().NoError(err)

	// The binding moves before the edit takes its locks.
	suite.Require().NoError(suite.db.Model(&models.SoftwareInstallation{}).
		Where("id = ?", installation.ID).Update("license_id", poolB.ID).Error)

	unlockB := suite.locks.Lock(poolLockKey(poolB.ID))

	done := make(chan error, 1)
	go func() {
		version := "2.0"
		_, err := suite.installations.UpdateInstallation(installation.ID,
			&UpdateInstallationRequest{Version: &version})
		done <- err
	}()

	select {
	case <-done:
		suite.Fail("edit proceeded while the held pool was locked")
	case <-time.After(100 * time.Millisecond):
	}

	unlockB()
	select {
	case err := <-done:
		suite.Require().NoError(err)
	case <-time.After(2 * time.Second):
		suite.Fail("edit did not complete after the pool lock was released")
	}
}

func (suite *InstallationTestSuite) TestListForAsset() {
	_, err := suite.installations.ListForAsset(suite.office.ID) // not an asset id
	assertDomainCode(suite.T(), err, CodeNotFound)

	_, err = suite.installations.AddInstallation(suite.workstation.ID, &AddInstallationRequest{
		SoftwareProductID: suite.office.ID,
	})
	suite.Require().NoError(err)

	// Installations stay visible on a deleted asset.
	suite.Require().NoError(suite.lifecycle.SoftDelete(suite.workstation.ID))
	installations, err := suite.installations.ListForAsset(suite.workstation.ID)
	suite.Require().NoError(err)
	suite.Len(installations, 1)
}

func TestInstallationSuite(t *testing.T) {
	suite.Run(t, new(InstallationTestSuite))
}
