package contracts

import (
	"net/url"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestURLFixture(t *testing.T) {
	gunit.Run(new(URLFixture), t)
}

type URLFixture struct {
	*gunit.Fixture
}

func (this *URLFixture) TestMarshal() {
	address, err := url.Parse("gcs://bucket/prefix")
	this.So(err, should.BeNil)
	value := URL(*address)
	raw, err := (&value).MarshalJSON()
	this.So(err, should.BeNil)
	this.So(string(raw), should.Equal, `"gcs://bucket/prefix"`)
}

func (this *URLFixture) TestUnmarshal() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"gcs://bucket/prefix"`))

	this.So(err, should.BeNil)
	this.So(address.Value().String(), should.Equal, "gcs://bucket/prefix")
}

func (this *URLFixture) TestUnmarshalNull() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"null"`))

	this.So(err, should.BeNil)
	this.So(address, should.Resemble, new(URL))
}

func (this *URLFixture) TestUnmarshalMalformedURL() {
	address := new(URL)
	err := address.UnmarshalJSON([]byte(`"%%%%%%"`))

	this.So(err, should.NotBeNil)
	this.So(address, should.Resemble, new(URL))
}
