package contracts

import (
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestUpdateConfigFixture(t *testing.T) {
	gunit.Run(new(UpdateConfigFixture), t)
}

type UpdateConfigFixture struct {
	*gunit.Fixture

	config UpdateConfig
}

func (this *UpdateConfigFixture) Setup() {
	this.config = UpdateConfig{
		Owner:       "owner",
		Repository:  "repository",
		Branch:      "main",
		VersionFile: "VERSION",
		LogFile:     "update.log",
	}
}

func (this *UpdateConfigFixture) TestFullyPopulatedConfig_NoError() {
	this.So(this.config.Validate(), should.BeNil)
}

func (this *UpdateConfigFixture) TestOwnerIsRequired() {
	this.config.Owner = ""
	this.So(this.config.Validate(), should.NotBeNil)
}

func (this *UpdateConfigFixture) TestRepositoryIsRequired() {
	this.config.Repository = ""
	this.So(this.config.Validate(), should.NotBeNil)
}

func (this *UpdateConfigFixture) TestBranchIsRequired() {
	this.config.Branch = ""
	this.So(this.config.Validate(), should.NotBeNil)
}

func (this *UpdateConfigFixture) TestVersionFileIsRequired() {
	this.config.VersionFile = ""
	this.So(this.config.Validate(), should.NotBeNil)
}

func (this *UpdateConfigFixture) TestLogFileIsRequired() {
	this.config.LogFile = ""
	this.So(this.config.Validate(), should.NotBeNil)
}
