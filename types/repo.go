// Package types holds the XML structures of RPM repository metadata:
// repodata/repomd.xml and the primary package list it points to.
package types

type Repomd struct {
	Revision string       `xml:"revision"`
	Data     []RepomdData `xml:"data"`
}

type RepomdData struct {
	Type         string   `xml:"type,attr"`
	Size         int      `xml:"size"`
	OpenSize     int      `xml:"open-size"`
	Timestamp    string   `xml:"timestamp"`
	Location     Location `xml:"location"`
	Checksum     Checksum `xml:"checksum"`
	OpenChecksum Checksum `xml:"open-checksum"`
}

type Location struct {
	Href string `xml:"href,attr"`
}

type Checksum struct {
	Hash string `xml:",chardata"`
	Type string `xml:"type,attr"`
}

type Metadata struct {
	Packages []*Package `xml:"package"`
}

type Package struct {
	Type     string   `xml:"type,attr"`
	Name     string   `xml:"name"`
	Arch     string   `xml:"arch"`
	Version  Version  `xml:"version"`
	Checksum Checksum `xml:"checksum"`
	Location Location `xml:"location"`
}

type Version struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}
