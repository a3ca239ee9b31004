//go:build !fastread_testhooks

package fastread

func readDirBatch(dh dirHandle, buf []byte, suffix string, batch *nameBatch) error {
	return readDirBatchImpl(dh, buf, suffix, batch)
}
