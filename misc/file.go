package misc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

func ReadFile(fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, errors.New("no filename supplied")
	}
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s - %w", fileName, err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s - %w", fileName, err)
	}
	return fileBytes, nil
}

func WriteFile(fileName string, contents []byte) (int, error) {
	if fileName == "" {
		return 0, errors.New("no filename supplied")
	}
	// create/truncate file for writing
	file, err := os.Create(fileName)
	if err != nil {
		return 0, fmt.Errorf("unable to create file %s - %w", fileName, err)
	}
	bytesWritten, err := file.Write(contents)
	if err != nil {
		file.Close()
		return bytesWritten, fmt.Errorf("unable to write file %s - %w", fileName, err)
	}
	if err = file.Close(); err != nil {
		return bytesWritten, fmt.Errorf("unable to close file %s - %w", fileName, err)
	}
	return bytesWritten, nil
}

// ReadJSON decodes the file into v. Fields missing from the file keep the
// values v already holds.
func ReadJSON(fileName string, v any) error {
	fileBytes, err := ReadFile(fileName)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(fileBytes, v); err != nil {
		return fmt.Errorf("unable to decode %s - %w", fileName, err)
	}
	return nil
}

func WriteJSON(fileName string, v any) error {
	fileBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode %s - %w", fileName, err)
	}
	_, err = WriteFile(fileName, fileBytes)
	return err
}
