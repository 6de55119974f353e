// Package rfid decodes the serial output of 125 kHz RFID card readers.
//
// Ownership boundary:
// - fixed 14-byte frame layout (start marker, 12 hex characters, end marker)
// - nibble reconstruction and XOR checksum verification
// - the ByteSource contract the decoder pulls from
//
// A TagRecord only exists after its checksum has been verified. Transport
// concerns (opening ports, retrying when no tag is presented) belong to the
// callers.
package rfid
