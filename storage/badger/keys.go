package badger

// Key layout: rec:<namespace>:<id>
const recordPrefix = "rec"

// makeRecordKey generates the key for a record in a namespace.
func makeRecordKey(namespace, id string) []byte {
	return []byte(recordPrefix + ":" + namespace + ":" + id)
}

// makeNamespacePrefix generates the prefix shared by every record of a namespace.
func makeNamespacePrefix(namespace string) []byte {
	return []byte(recordPrefix + ":" + namespace + ":")
}
